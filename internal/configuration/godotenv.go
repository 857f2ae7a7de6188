package configuration

import (
	"fmt"
	"maps"
	"os"

	"github.com/joho/godotenv"
)

// GodotenvProvider is an implementation wrapping the Gotdotenv framework.
type GodotenvProvider struct{}

// Read parses the env files into one map (map[key]value), with the values
// of later files taking precedence.
func (*GodotenvProvider) Read(filenames ...string) (map[string]string, error) {
	envMap := make(map[string]string)

	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("(config-godotenv) %w", err)
		}

		data, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("(config-godotenv) failed to parse %s: %w", filename, err)
		}

		maps.Copy(envMap, data)
	}

	return envMap, nil
}
