package layout

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

const widthKey = "width"

// Load reads layouts from an INI document. source is a file name or the
// document itself as []byte. Sections are returned in document order; the
// default section is ignored.
func Load(source interface{}) ([]*Layout, error) {
	f, err := ini.Load(source)
	if err != nil {
		return nil, errors.Wrap(err, "could not load layouts")
	}

	var layouts []*Layout
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		l, err := fromSection(sec)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"layout": l.Name,
			"width":  l.Width,
			"used":   l.total,
			"fields": len(l.Fields),
		}).Debug("Loaded bit layout")
		layouts = append(layouts, l)
	}
	return layouts, nil
}

func fromSection(sec *ini.Section) (*Layout, error) {
	width := uint(DefaultWidth)
	var fields []Field
	for _, key := range sec.Keys() {
		v, err := key.Uint()
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLayout, "%s: key %q: %v", sec.Name(), key.Name(), err)
		}
		if key.Name() == widthKey {
			width = v
			continue
		}
		fields = append(fields, Field{Name: key.Name(), Width: v})
	}
	return New(sec.Name(), width, fields...)
}
