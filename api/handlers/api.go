package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/api"
	"github.com/linesmerrill/city-reporter-api/api/scheduler"
	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/config"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/notify"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

const (
	serviceVersion = "1.0.0"
	connectTimeout = 20 * time.Second

	submitReportPath = "/submit-report"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	client    databases.ClientHelper
	svc       *reporting.Service
	feed      *FeedHub
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.feed == nil {
		a.feed = NewFeedHub()
	}
	udb := databases.NewUserDatabase(a.dbHelper)
	adb := databases.NewAdminDatabase(a.dbHelper)
	odb := databases.NewOfficeDatabase(a.dbHelper)
	if a.svc == nil {
		a.svc = reporting.New(reporting.Deps{
			Users:   udb,
			Admins:  adb,
			Reports: databases.NewReportDatabase(a.dbHelper),
			Events:  a.feed,
		}, reporting.Options{})
	}

	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	auth := api.NewAdminAuth(a.Config.AdminJWTSecret)
	perMinute, burst := a.Config.PublicRatePerMinute, a.Config.PublicRateBurst
	if perMinute <= 0 || burst <= 0 {
		perMinute, burst = 20, 5
	}
	limiter := api.NewRateLimiter(perMinute, burst)

	u := User{Svc: a.svc, DB: udb}
	ad := Admin{Svc: a.svc, DB: adb}
	o := Office{DB: odb}
	rp := Report{Svc: a.svc}
	pc := PublicComment{Svc: a.svc}
	st := Statistics{Svc: a.svc}

	r := mux.NewRouter()
	// a stored report must not turn into a 504 while offices are still being
	// emailed; upload and each send carry their own timeouts
	r.Use(api.RequestLogger, api.TimeoutMiddleware(timeout, submitReportPath))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.HandleFunc("/", a.serviceInfoHandler).Methods("GET")

	r.Handle("/users/register", limiter.Middleware(http.HandlerFunc(u.RegisterUserHandler))).Methods("POST")
	r.HandleFunc("/users", u.UsersHandler).Methods("GET")
	r.HandleFunc("/users/{user_id}", u.UserHandler).Methods("GET")

	r.HandleFunc("/admin/register", ad.RegisterAdminHandler).Methods("POST")
	r.HandleFunc("/admin/{admin_id}/assigned-issues", ad.AssignedIssuesHandler).Methods("GET")
	r.HandleFunc("/admin/{admin_id}", ad.AdminHandler).Methods("GET")
	r.HandleFunc("/admins/city/{city}", ad.AdminsByCityHandler).Methods("GET")

	r.Handle("/offices", auth.Middleware(http.HandlerFunc(o.CreateOfficeHandler))).Methods("POST")
	r.HandleFunc("/offices", o.OfficesHandler).Methods("GET")
	r.HandleFunc("/offices/{office_id}", o.OfficeHandler).Methods("GET")
	r.Handle("/offices/{office_id}", auth.Middleware(http.HandlerFunc(o.UpdateOfficeHandler))).Methods("PUT")
	r.Handle("/offices/{office_id}", auth.Middleware(http.HandlerFunc(o.DeleteOfficeHandler))).Methods("DELETE")

	r.Handle(submitReportPath, limiter.Middleware(http.HandlerFunc(rp.SubmitReportHandler))).Methods("POST")
	r.HandleFunc("/reports", rp.ReportsHandler).Methods("GET")
	// All fixed /reports/... paths must go above /reports/{report_id}
	r.HandleFunc("/reports/nearby", rp.NearbyReportsHandler).Methods("GET")
	r.HandleFunc("/reports/geojson", rp.GeoJSONHandler).Methods("GET")
	r.HandleFunc("/reports/user/{user_id}", rp.ReportsByUserHandler).Methods("GET")
	r.HandleFunc("/reports/by-city/{city}", rp.ReportsByPlaceHandler("city")).Methods("GET")
	r.HandleFunc("/reports/by-district/{district}", rp.ReportsByPlaceHandler("district")).Methods("GET")
	r.HandleFunc("/reports/by-province/{province}", rp.ReportsByPlaceHandler("province")).Methods("GET")
	r.HandleFunc("/reports/{report_id}", rp.ReportHandler).Methods("GET")
	r.Handle("/reports/{report_id}", auth.Middleware(http.HandlerFunc(rp.DeleteReportHandler))).Methods("DELETE")
	r.Handle("/reports/{report_id}/status", auth.Middleware(http.HandlerFunc(rp.UpdateStatusHandler))).Methods("PATCH")
	r.Handle("/reports/{report_id}/assign-admin", auth.Middleware(http.HandlerFunc(rp.AssignAdminHandler))).Methods("PATCH")
	r.Handle("/reports/{report_id}/resolution-status", auth.Middleware(http.HandlerFunc(rp.ResolutionStatusHandler))).Methods("PATCH")
	r.Handle("/reports/{report_id}/comments", auth.Middleware(http.HandlerFunc(rp.AdminCommentHandler))).Methods("POST")
	r.Handle("/reports/{report_id}/evidence-photo", auth.Middleware(http.HandlerFunc(rp.EvidencePhotoHandler))).Methods("POST")
	r.HandleFunc("/reports/{report_id}/actions", rp.ActionsHandler).Methods("GET")
	r.Handle("/reports/{report_id}/public-comments", limiter.Middleware(http.HandlerFunc(pc.AddPublicCommentHandler))).Methods("POST")
	r.HandleFunc("/reports/{report_id}/public-comments", pc.PublicCommentsHandler).Methods("GET")
	r.Handle("/reports/{report_id}/public-comments/{comment_id}", auth.Middleware(http.HandlerFunc(pc.DeletePublicCommentHandler))).Methods("DELETE")

	r.HandleFunc("/statistics/location", st.LocationStatisticsHandler).Methods("GET")
	r.HandleFunc("/statistics/status", st.StatusStatisticsHandler).Methods("GET")
	r.HandleFunc("/statistics/admin-activity", st.AdminActivityHandler).Methods("GET")

	if a.Config.EnableSeedRoutes {
		s := Seed{ODB: odb, ADB: adb}
		r.HandleFunc("/seed/offices", s.SeedOfficesHandler).Methods("POST")
		r.HandleFunc("/seed/admins", s.SeedAdminsHandler).Methods("POST")
	}

	r.HandleFunc("/ws/reports", a.feed.ReportFeedHandler).Methods("GET")
	return r
}

// Initialize is invoked by main to connect with the database, build the
// report service and its adapters, start the scheduler and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err = client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	if err = client.Ping(ctx); err != nil {
		zap.S().With(err).Error("failed to ping database")
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Info("city-reporter-api has connected to the database")

	if err = databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	uploader, err := blobstore.NewCloudinaryStore(a.Config.CloudinaryURL, a.Config.UploadFolder)
	if err != nil {
		return err
	}
	notifier := notify.NewSendGridNotifier(notify.Options{
		APIKey:        a.Config.SendGridAPIKey,
		FromName:      a.Config.EmailFromName,
		FromAddress:   a.Config.EmailFromAddress,
		Mode:          a.Config.EmailMode,
		ShadowAddress: a.Config.EmailShadowAddress,
	})

	a.feed = NewFeedHub()
	a.svc = reporting.New(reporting.Deps{
		Users:    databases.NewUserDatabase(a.dbHelper),
		Admins:   databases.NewAdminDatabase(a.dbHelper),
		Reports:  databases.NewReportDatabase(a.dbHelper),
		Uploader: uploader,
		Notifier: notifier,
		Events:   a.feed,
	}, reporting.Options{
		UploadTimeout:     a.Config.UploadTimeout,
		NotifyTimeout:     a.Config.NotifyTimeout,
		NotifyConcurrency: a.Config.NotifyConcurrency,
	})

	a.scheduler = scheduler.NewScheduler(a.Config.DigestCron, a.svc, databases.NewSchedulerLockDatabase(a.dbHelper))
	if err = a.scheduler.Start(); err != nil {
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close stops background work and releases the database connection
func (a *App) Close(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.feed != nil {
		a.feed.Close()
	}
	if a.client != nil {
		return a.client.Disconnect(ctx)
	}
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) serviceInfoHandler(w http.ResponseWriter, r *http.Request) {
	database := "disconnected"
	if a.client != nil {
		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()
		if err := a.client.Ping(ctx); err == nil {
			database = "connected"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.ServiceInfoResponse{
		Status:   "running",
		Service:  "SmartCity Issue Reporter",
		Storage:  "cloudinary",
		Database: database,
		Version:  serviceVersion,
		Features: []string{"issue-reports", "email-notifications", "resolution-tracking", "public-comments", "live-feed", "daily-digest"},
	})
	_, _ = io.WriteString(w, string(b))
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
