package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/moxying/mox/logging"
)

// FileStore 生成图片的本地落盘存储。
type FileStore struct {
	dir string
}

// NewFileStore 创建存储，目录不存在时自动创建。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Put 写入一个文件。
func (s *FileStore) Put(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// Delete 删除一个文件，不存在时仅告警。
func (s *FileStore) Delete(name string) error {
	p := filepath.Join(s.dir, name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		logging.L().Warn(context.Background(), "try to delete a none exist file", "path", p)
		return nil
	}
	return os.Remove(p)
}

// Path 返回文件的完整路径。
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}
