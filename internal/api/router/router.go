package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atakdmr/StudentAttendance/config"
	"github.com/atakdmr/StudentAttendance/internal/api/handler"
	"github.com/atakdmr/StudentAttendance/internal/api/middleware"
	"github.com/atakdmr/StudentAttendance/internal/model"
	"github.com/atakdmr/StudentAttendance/pkg/jwt"
	"github.com/atakdmr/StudentAttendance/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：此时不做 Token 黑名单与登录限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes, cfg.Server.UploadMaxBytes))

	// 避免把 nil *redis.Client 装进非 nil 接口
	var (
		checker middleware.TokenChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		checker = rdb
		limiter = rdb
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(limiter, cfg.RateLimit.LoginPerMinute, time.Minute), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker, cfg.Auth.Cookie.Name))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("", h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 班级模块
			groups := authorized.Group("/groups")
			{
				groups.GET("", staff, h.Group.ListGroups)
				groups.GET("/:id", staff, h.Group.GetGroup)
				groups.POST("", admin, h.Group.CreateGroup)
				groups.PUT("/:id", admin, h.Group.UpdateGroup)
				groups.DELETE("/:id", admin, h.Group.DeleteGroup)
			}

			// 学生模块
			students := authorized.Group("/students")
			{
				students.GET("", staff, h.Student.ListStudents)
				students.GET("/:id", staff, h.Student.GetStudent)
				students.POST("", admin, h.Student.CreateStudent)
				students.POST("/import", admin, h.Student.ImportStudents)
				students.PUT("/:id", admin, h.Student.UpdateStudent)
				students.DELETE("/:id", admin, h.Student.DeleteStudent)
			}

			// 课程模块（教师只能操作自己的课程，Handler 层鉴权）
			lessons := authorized.Group("/lessons", staff)
			{
				lessons.GET("", h.Lesson.ListLessons)
				lessons.GET("/conflicts", h.Lesson.CheckConflicts)
				lessons.GET("/schedule", h.Lesson.GetSchedule)
				lessons.GET("/:id", h.Lesson.GetLesson)
				lessons.GET("/:id/sessions", h.Lesson.ListLessonSessions)
				lessons.POST("", h.Lesson.CreateLesson)
				lessons.PUT("/:id", h.Lesson.UpdateLesson)
				lessons.DELETE("/:id", h.Lesson.DeleteLesson)
			}

			// 考勤模块（课程教师或管理员）
			attendance := authorized.Group("/attendance", staff)
			{
				attendance.GET("/lessons-to-start", h.Attendance.LessonsToStart)
				attendance.GET("/sessions", h.Attendance.ListSessions)
				attendance.POST("/sessions", h.Attendance.OpenSession)
				attendance.GET("/sessions/:id", h.Attendance.GetSession)
				attendance.POST("/sessions/:id/mark", h.Attendance.MarkOne)
				attendance.POST("/sessions/:id/bulk-mark", h.Attendance.BulkMark)
				attendance.POST("/sessions/:id/finalize", h.Attendance.FinalizeSession)
			}

			// 缺勤模块
			absences := authorized.Group("/absences", admin)
			{
				absences.GET("", h.Absence.ListAbsences)
				absences.POST("/notify", h.Absence.NotifyAbsences)
			}

			// 报表模块
			reports := authorized.Group("/reports", staff)
			{
				reports.GET("/sessions", h.Report.ListFinalizedSessions)
				reports.GET("/sessions/:id/csv", h.Report.ExportSessionCSV)
				reports.GET("/students/:id", h.Report.GetStudentReport)
				reports.GET("/students/:id/csv", h.Report.ExportStudentCSV)
				reports.GET("/groups/:id", admin, h.Report.GetGroupReport)
				reports.GET("/groups/:id/xlsx", admin, h.Report.ExportGroupXLSX)
			}

			// 通知模块
			notifications := authorized.Group("/notifications", staff)
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.DELETE("", h.Notification.DeleteAllNotifications)
			}

			// 公告模块
			announcements := authorized.Group("/announcements", staff)
			{
				announcements.GET("", h.Announcement.ListAnnouncements)
				announcements.GET("/:id", h.Announcement.GetAnnouncement)
				announcements.POST("", admin, h.Announcement.CreateAnnouncement)
				announcements.PUT("/:id", admin, h.Announcement.UpdateAnnouncement)
				announcements.DELETE("/:id", admin, h.Announcement.DeleteAnnouncement)
			}
		}
	}

	return r
}

// healthHandler 数据库可达时返回 ok
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
