package main

import (
	"log"
	"os"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/storage/database"
	mongorepos "github.com/trezcool/smartseats/storage/database/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		usrRepo: mongorepos.NewUserRepository(db),
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
