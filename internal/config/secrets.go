package config

import (
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// secretValues resolves secret-valued keys, checking the process environment
// first and a TOML secrets file second.
type secretValues struct {
	file map[string]string
}

// loadSecrets reads the optional secrets file. A missing or unparseable file
// is treated the same as an absent secret: the affected feature reports
// itself as misconfigured instead of the process failing to start.
func loadSecrets() secretValues {
	path := getEnvOrDefault("SECRETS_FILE", "secrets.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: failed to read secrets file %s: %v", path, err)
		}
		return secretValues{}
	}

	values := make(map[string]string)
	if err := toml.Unmarshal(data, &values); err != nil {
		log.Printf("warning: failed to parse secrets file %s: %v", path, err)
		return secretValues{}
	}

	return secretValues{file: values}
}

// lookup returns the trimmed value for key, environment first.
func (s secretValues) lookup(key string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(s.file[key])
}
