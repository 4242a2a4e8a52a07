package layout

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "layout")
