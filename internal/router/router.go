package router

import (
	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/config"
	"lab-maintenance-backend/internal/handler"
	"lab-maintenance-backend/internal/middleware"
	"lab-maintenance-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth      *handler.AuthHandler
	Lab       *handler.LabHandler
	Computer  *handler.ComputerHandler
	Status    *handler.StatusHandler
	Report    *handler.ReportHandler
	User      *handler.UserHandler
	Accessory *handler.AccessoryHandler
	Dashboard *handler.DashboardHandler
}

// routes a session with default admin credentials may still reach
var credentialUpdateRoutes = []string{
	"/check_session",
	"/check_default_credentials",
	"/update_default_admin",
	"/logout",
}

// Setup builds the gin engine with every route and its capability guard
func Setup(cfg *config.Config, auth middleware.Authenticator, h Handlers) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(cfg))

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "lab-maintenance-backend",
		})
	})

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)

	// Public routes
	r.POST("/login", loginLimiter.Middleware(), h.Auth.Login)
	r.POST("/refresh", loginLimiter.Middleware(), h.Auth.Refresh)
	r.GET("/check_session", h.Auth.CheckSession)

	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(auth), middleware.CredentialGate(credentialUpdateRoutes...))
	{
		read := middleware.RequireCapability(access.Read)
		writeLab := middleware.RequireCapability(access.WriteLab)
		writeComputer := middleware.RequireCapability(access.WriteComputer)
		writeStatus := middleware.RequireCapability(access.WriteStatus)
		writeReport := middleware.RequireCapability(access.WriteReport)
		readReports := middleware.RequireCapability(access.ReadReports)
		dispatch := middleware.RequireCapability(access.DispatchReports)
		manageUsers := middleware.RequireCapability(access.ManageUsers)

		// Session
		api.POST("/logout", h.Auth.Logout)
		api.GET("/check_default_credentials", h.Auth.CheckDefaultCredentials)
		api.POST("/update_default_admin", h.Auth.UpdateDefaultAdmin)

		// Laboratories
		api.GET("/get_laboratory", read, h.Lab.GetLaboratories)
		api.POST("/add_laboratory", writeLab, h.Lab.AddLaboratory)
		api.PUT("/edit_lab/:id", writeLab, h.Lab.EditLab)
		api.DELETE("/delete_lab/:name", writeLab, h.Lab.DeleteLab)
		api.GET("/labs-pc-count", read, h.Lab.LabsPCCount)

		// Computers
		api.GET("/get_computers", read, h.Computer.GetComputers)
		api.GET("/get_computer/:id", read, h.Computer.GetComputer)
		api.GET("/get_edit_data", read, h.Computer.GetEditData)
		api.POST("/computer", writeComputer, h.Computer.AddComputer)
		api.POST("/computer/bulk", writeComputer, h.Computer.AddComputersBulk)
		api.POST("/update_edit_data/:id", writeComputer, h.Computer.UpdateEditData)
		api.DELETE("/delete_computer/:id", writeComputer, h.Computer.DeleteComputer)
		api.POST("/delete_computer/bulk", writeComputer, h.Computer.DeleteComputersBulk)

		// Part statuses
		api.GET("/get_computer_statuses", read, h.Status.GetComputerStatuses)
		api.GET("/get_other_part_status", read, h.Status.GetOtherPartStatus)
		api.GET("/get_computer_part_statuses/:id", read, h.Status.GetComputerPartStatuses)
		api.POST("/update_computer_status", writeStatus, h.Status.UpdateComputerStatus)
		api.POST("/update_computer_status_bulk", writeStatus, h.Status.UpdateComputerStatusBulk)

		// Reports
		api.POST("/add_report", writeReport, h.Report.AddReport)
		api.GET("/get_admin_computer_reports", readReports, h.Report.GetAdminComputerReports)
		api.POST("/send_report_email", dispatch, h.Report.SendReportEmail)
		api.POST("/submit_technician_report", writeReport, h.Report.SubmitTechnicianReport)
		api.GET("/get_technician_logs", readReports, h.Report.GetTechnicianLogs)
		api.GET("/get_report_logs/:id", readReports, h.Report.GetReportLogs)
		api.POST("/technician_send_report_email", middleware.RequireAnyCapability(access.WriteReport, access.DispatchReports), h.Report.TechnicianSendReportEmail)
		api.DELETE("/delete_report/:id", writeReport, h.Report.DeleteReport)

		// Users
		api.GET("/get_user", h.User.GetUser)
		api.POST("/update_profile", h.User.UpdateProfile)
		api.POST("/register_user", manageUsers, h.User.RegisterUser)
		api.GET("/get_users", manageUsers, h.User.GetUsers)
		api.PUT("/users/:id", manageUsers, h.User.UpdateUser)
		api.DELETE("/users/:id", manageUsers, h.User.DeleteUser)
		api.DELETE("/delete_user/:email", manageUsers, h.User.DeleteUserByEmail)
		api.GET("/users/:id/labs", manageUsers, h.User.GetUserLabs)
		api.POST("/users/:id/labs/:lab_id", manageUsers, h.User.AssignLab)
		api.DELETE("/users/:id/labs/:lab_id", manageUsers, h.User.UnassignLab)

		// Accessories
		api.GET("/get_accessories", read, h.Accessory.GetAccessories)
		api.POST("/add_accessories", writeLab, h.Accessory.AddAccessories)
		api.PUT("/update_accessory/:id", writeLab, h.Accessory.UpdateAccessory)
		api.DELETE("/delete_accessory/:id", writeLab, h.Accessory.DeleteAccessory)

		// Dashboard
		api.GET("/get_data", read, h.Dashboard.GetData)
	}

	return r
}
