package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tarbeev/planner/internal/config"
	"github.com/tarbeev/planner/internal/repository"
	"github.com/tarbeev/planner/internal/rollover"
	"github.com/tarbeev/planner/internal/service"
	"github.com/tarbeev/planner/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	tagRepo := repository.NewTagRepository(db)
	noteRepo := repository.NewDayNoteRepository(db)

	taskSvc := service.NewTaskService(taskRepo, tagRepo, noteRepo)
	noteSvc := service.NewNoteService(noteRepo)
	searchSvc := service.NewSearchService(taskRepo, noteRepo)

	executor := rollover.NewExecutor(taskRepo)
	coordinator := rollover.NewCoordinator(userRepo, executor, cfg.RolloverWorkers)

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval(cfg.RolloverInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := coordinator.RunAll(jobCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("rollover run: %v", err)
			return
		}
		if report.TasksRolled > 0 {
			log.Printf("rollover run: %d tasks rolled for %d users", report.TasksRolled, len(report.Results))
		}
	}); err != nil {
		log.Fatalf("schedule rollover: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.New(userRepo, taskSvc, noteSvc, searchSvc, coordinator, executor)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("Planner started on %s.", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
