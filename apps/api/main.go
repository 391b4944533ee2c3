package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/mawazo/darasa/apps/api/echo"
	"github.com/mawazo/darasa/core"
	"github.com/mawazo/darasa/core/classroom"
	"github.com/mawazo/darasa/core/content"
	"github.com/mawazo/darasa/core/user"
	emailsvc "github.com/mawazo/darasa/services/email"
	logsvc "github.com/mawazo/darasa/services/logger"
	"github.com/mawazo/darasa/storage/database"
	sqlxrepos "github.com/mawazo/darasa/storage/database/sqlx"
	"github.com/mawazo/darasa/storage/files"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	sdb := sqlx.NewDb(db, core.Conf.Database.Engine)

	fileStore, err := files.NewLocalStorage(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	classSvc := classroom.NewService(sqlxrepos.NewClassroomRepository(sdb))
	contentSvc := content.NewService(sqlxrepos.NewContentRepository(sdb), classSvc, fileStore, mailSvc, logger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), classSvc, contentSvc)
	contentSvc.SetUserDirectory(usrSvc)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Address:    net.JoinHostPort(core.Conf.Server.Host, core.Conf.Server.Port),
		Logger:     logger,
		Files:      fileStore,
		UserSvc:    usrSvc,
		ClassSvc:   classSvc,
		ContentSvc: contentSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: integrity issue, start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (*sql.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
