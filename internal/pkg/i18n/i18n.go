package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLocale = "en"
	catalogFile   = "messages.yaml"
)

type Translations map[string]string

//go:embed locales
var embedded embed.FS

var (
	locales = make(map[string]Translations)
	mu      sync.RWMutex
)

func init() {
	if err := load(embedded, "locales"); err != nil {
		panic(fmt.Sprintf("i18n: embedded catalog: %v", err))
	}
}

// LoadTranslations merges catalogs from <localePath>/<locale>/messages.yaml over the embedded ones.
func LoadTranslations(localePath string) error {
	return load(os.DirFS(localePath), ".")
}

func load(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	parsed := make(map[string]Translations, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		filePath := path.Join(root, locale, catalogFile)

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			continue
		}

		var catalog struct {
			Messages Translations `yaml:"MESSAGES"`
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
		parsed[locale] = catalog.Messages
	}

	mu.Lock()
	defer mu.Unlock()
	for locale, trans := range parsed {
		if locales[locale] == nil {
			locales[locale] = make(Translations, len(trans))
		}
		for k, v := range trans {
			locales[locale][k] = v
		}
	}
	return nil
}

func Translate(locale, key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != DefaultLocale {
		if trans, ok := locales[DefaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

// Format translates key and applies args as fmt verbs.
func Format(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(Translate(locale, key), args...)
}
