package rtp

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "rtp")
