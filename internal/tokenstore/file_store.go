package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// StateFileName は状態ディレクトリ内の保存ファイル名。
const StateFileName = "state.json"

// ErrCorruptState は状態ファイルの内容を解析できないことを示す。
// SaveとClearは解析できない内容を破棄して書き直す。
var ErrCorruptState = errors.New("tokenstore: state file is corrupt")

// fileLocks は同一ファイルを共有するFileStore間の排他に使う。
var fileLocks sync.Map

// FileStore はJSONファイルに値を保存するStore実装。
// 同じファイルを複数のキーで共有でき、各キーは独立に読み書きされる。
type FileStore struct {
	path string
	key  string
	mu   *sync.Mutex
}

// NewFileStore は指定ディレクトリの state.json にkeyで値を保存するFileStoreを生成する。
func NewFileStore(dir, key string) *FileStore {
	path := filepath.Join(dir, StateFileName)
	mu, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return &FileStore{
		path: path,
		key:  key,
		mu:   mu.(*sync.Mutex),
	}
}

// Path は保存先ファイルのパスを返す。
func (s *FileStore) Path() string {
	return s.path
}

// Save は値を保存する。ファイルは一時ファイルからのリネームで置き換える。
func (s *FileStore) Save(_ context.Context, value string) error {
	if value == "" {
		return ErrEmptyValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadForWrite()
	if err != nil {
		return err
	}
	state[s.key] = value
	return s.write(state)
}

// Read は保存された値を返す。ファイルが存在しない場合は未保存として扱う。
func (s *FileStore) Read(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := state[s.key]
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Clear は値を削除する。ファイルが壊れている場合も値を残さない。
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if errors.Is(err, ErrCorruptState) {
		return s.write(make(map[string]string))
	}
	if err != nil {
		return err
	}
	if _, ok := state[s.key]; !ok {
		return nil
	}
	delete(state, s.key)
	return s.write(state)
}

// loadForWrite は書き込み前の状態を読む。壊れたファイルは空の状態として扱う。
func (s *FileStore) loadForWrite() (map[string]string, error) {
	state, err := s.load()
	if errors.Is(err, ErrCorruptState) {
		return make(map[string]string), nil
	}
	return state, err
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state := make(map[string]string)
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.path, err)
	}
	return state, nil
}

func (s *FileStore) write(state map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
