package main

import (
	"flag"

	"github.com/honeybarrel/forum/config"
	"github.com/honeybarrel/forum/models"
	"github.com/honeybarrel/forum/routes"
	"github.com/honeybarrel/forum/seed"
	"github.com/honeybarrel/forum/utils"
)

func main() {
	seedDemo := flag.Bool("seed", false, "load demo categories, threads and posts, then exit")
	flag.Parse()

	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{}, &models.Profile{}, &models.Category{},
		&models.Thread{}, &models.Post{}, &models.Like{},
	)

	if *seedDemo {
		if err := seed.Run(db); err != nil {
			utils.Sugar.Fatalf("seeding failed: %v", err)
		}
		utils.Sugar.Info("demo data loaded")
		return
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
