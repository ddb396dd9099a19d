package main

import (
	"github.com/spvnet/spvd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("SPVD")

func initLog(logFile, errLogFile string) {
	logger.InitLog(logFile, errLogFile)
}
