package policy

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "policy.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// LoadFile читает файл переопределений (TOML, YAML или JSON по расширению),
// проверяет его по схеме и по известным именам порогов.
func LoadFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return ParseOverrides(data, filepath.Ext(path))
}

// ParseOverrides разбирает содержимое файла переопределений.
func ParseOverrides(data []byte, ext string) (*Overrides, error) {
	generic, err := decodeGeneric(data, ext)
	if err != nil {
		return nil, err
	}

	// приводим к JSON-типам, чтобы схема видела числа как float64
	normalized, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("normalize policy file: %w", err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("normalize policy file: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("policy file does not match schema: %w", err)
	}

	var ov Overrides
	if err := json.Unmarshal(normalized, &ov); err != nil {
		return nil, fmt.Errorf("decode policy file: %w", err)
	}
	if err := ov.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy overrides: %w", err)
	}
	return &ov, nil
}

func decodeGeneric(data []byte, ext string) (map[string]any, error) {
	out := make(map[string]any)
	switch ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &out); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		out = make(map[string]any)
		if _, err := toml.Decode(string(data), &out); err == nil {
			return out, nil
		}
		out = make(map[string]any)
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("unable to detect policy file format")
		}
	}
	return out, nil
}

// Store держит актуальные переопределения и перечитывает файл при изменении.
type Store struct {
	path     string
	mu       sync.RWMutex
	current  *Overrides
	watcher  *fsnotify.Watcher
	onChange []func(*Overrides)
	ctx      context.Context
	cancel   context.CancelFunc
	errChan  chan error
}

// NewStore создаёт хранилище; пустой путь означает работу без переопределений.
func NewStore(path string) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		path:    path,
		ctx:     ctx,
		cancel:  cancel,
		errChan: make(chan error, 1),
	}
}

// Load читает файл один раз.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	ov, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = ov
	s.mu.Unlock()
	return nil
}

// Overrides текущие переопределения, nil если их нет.
func (s *Store) Overrides() *Overrides {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange регистрирует обработчик успешной перезагрузки.
func (s *Store) OnChange(cb func(*Overrides)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, cb)
	s.mu.Unlock()
}

// Errors ошибки перезагрузки.
func (s *Store) Errors() <-chan error {
	return s.errChan
}

// Watch следит за каталогом файла и перечитывает его при записи.
func (s *Store) Watch() error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	s.watcher = watcher

	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	var debounce *time.Timer
	const delay = 100 * time.Millisecond

	for {
		select {
		case <-s.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, s.reload)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.report(err)
		}
	}
}

func (s *Store) reload() {
	ov, err := LoadFile(s.path)
	if err != nil {
		// старые переопределения остаются в силе
		s.report(fmt.Errorf("reload policy file: %w", err))
		return
	}

	s.mu.Lock()
	s.current = ov
	callbacks := append([]func(*Overrides){}, s.onChange...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(ov)
	}
}

func (s *Store) report(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

// Close останавливает наблюдение.
func (s *Store) Close() error {
	s.cancel()
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
