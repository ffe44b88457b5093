package conf

import (
	"reflect"
	"strings"

	"github.com/dinoallo/sealos-nm-bytecount/pkg/log"
)

// PrintConfig logs every leaf of a user config at debug level, one
// dotted koanf key per line.
func PrintConfig(logger log.Logger, conf any) error {
	rv := reflect.ValueOf(conf)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrNotAStruct
	}
	printStruct(logger, "", rv)
	return nil
}

func printStruct(logger log.Logger, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		key := strings.Split(f.Tag.Get("koanf"), ",")[0]
		if key == "" {
			key = strings.ToLower(f.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct {
			printStruct(logger, key, fv)
			continue
		}
		logger.Debugf("%v: %v", key, fv.Interface())
	}
}
