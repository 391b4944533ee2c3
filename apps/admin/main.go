package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

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

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	appLogger := logsvc.NewRollbarLogger(logger, core.Conf)
	appLogger.Enable(false)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	fileStore, err := files.NewLocalStorage(core.Conf)
	errAndDie(err)

	sdb := sqlx.NewDb(db, core.Conf.Database.Engine)
	classSvc := classroom.NewService(sqlxrepos.NewClassroomRepository(sdb))
	contentSvc := content.NewService(sqlxrepos.NewContentRepository(sdb), classSvc, fileStore, emailsvc.NewConsoleService(), appLogger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), classSvc, contentSvc)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: usrSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
