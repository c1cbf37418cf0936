package main

import (
	"github.com/comandaviva/pdv/internal/app"
	"github.com/comandaviva/pdv/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
