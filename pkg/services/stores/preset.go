package stores

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/liut/showsmart/pkg/models/aigc"
)

// LoadPreset reads the yaml preset at name, an empty name gives the built-in persona.
func LoadPreset(name string) (doc aigc.Preset, err error) {
	if len(name) > 0 {
		var yf *os.File
		yf, err = os.Open(name)
		if err != nil {
			logger().Infow("load preset fail", "file", name, "err", err)
			return
		}
		defer yf.Close()
		err = yaml.NewDecoder(yf).Decode(&doc)
		if err != nil {
			logger().Infow("decode preset fail", "err", err)
			return
		}
	}

	return
}
