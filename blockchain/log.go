package blockchain

import (
	"github.com/spvnet/spvd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CHAN")
