package routes

import (
	"github.com/piyushkhatri968/Waqarr-project/internal/handlers"
	"github.com/piyushkhatri968/Waqarr-project/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes регистрирует публичные маршруты аутентификации.
func RegisterAuthRoutes(r *gin.Engine) {
	r.POST("/api/auth/login", handlers.LoginHandler)
}

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(r *gin.Engine) {
	api := r.Group("/api", middleware.AuthMiddleware())
	{
		auth := api.Group("/auth")
		{
			auth.GET("/me", handlers.MeHandler)
			auth.POST("/logout", handlers.LogoutHandler)
			auth.POST("/change-password", handlers.ChangePasswordHandler)
		}

		// --- КЛИЕНТЫ ---
		customers := api.Group("/customers")
		{
			customers.GET("", handlers.ListCustomersHandler)
			customers.POST("", handlers.CreateCustomerHandler)
			customers.GET("/:id", handlers.GetCustomerHandler)
			customers.PUT("/:id", handlers.UpdateCustomerHandler)
			customers.DELETE("/:id", handlers.DeleteCustomerHandler)
		}

		// --- ПЛАТЕЖИ ---
		payments := api.Group("/payments")
		{
			payments.GET("", handlers.ListPaymentsHandler)
			payments.GET("/overdue", handlers.ListOverduePaymentsHandler)
			payments.POST("/update-overdue", handlers.SweepOverdueHandler)
			payments.GET("/customer/:customerId", handlers.ListCustomerPaymentsHandler)
			payments.GET("/customer/:customerId/summary", handlers.PaymentSummaryHandler)
			payments.POST("/customer/:customerId/closeout", handlers.CloseoutHandler)
			payments.PUT("/:id/mark-paid", handlers.MarkPaymentPaidHandler)
			payments.PUT("/:id/revert", handlers.RevertPaymentHandler)
		}

		// --- ДОКУМЕНТЫ ---
		documents := api.Group("/documents")
		{
			documents.POST("/customer/:customerId", handlers.UploadDocumentHandler)
			documents.GET("/customer/:customerId", handlers.ListCustomerDocumentsHandler)
			documents.DELETE("/:id", handlers.DeleteDocumentHandler)
		}

		// --- ОТЧЕТЫ ---
		reports := api.Group("/reports")
		{
			reports.GET("/dashboard", handlers.DashboardStatsHandler)
			reports.GET("/financial", handlers.FinancialSummaryHandler)
			reports.GET("/monthly", handlers.MonthlyReportHandler)
			reports.GET("/car-brands", handlers.CarBrandReportHandler)
			reports.GET("/customers", handlers.CustomerReportHandler)
			reports.GET("/payments/export", handlers.ExportPaymentsExcelHandler)
			reports.GET("/customers/:customerId/statement", handlers.ExportCustomerPDFHandler)
		}
	}
}
