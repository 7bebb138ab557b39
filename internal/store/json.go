package store

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/nenelamp/cyberguard/internal/config"
	"github.com/nenelamp/cyberguard/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errStoreFileIsDir = errors.New("store file is dir")

// fileData mirrors the browser localStorage layout of the original client:
// the token as-is, the user as a nested JSON document.
type fileData struct {
	AuthToken string `json:"authToken"`
	UserData  string `json:"userData"`
}

type jsonStore struct {
	path string
	log  *zap.Logger
}

type jsonParams struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
}

func NewJSON(p jsonParams) (Store, error) {
	return NewJSONFile(p.Config.Store.Path, p.Log), nil
}

// NewJSONFile builds a Store over the file at path.
func NewJSONFile(path string, log *zap.Logger) Store {
	return &jsonStore{
		path: path,
		log:  log,
	}
}

func (s *jsonStore) Load() (string, *model.User, error) {
	finfo, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}

	if finfo.IsDir() {
		return "", nil, errStoreFileIsDir
	}

	f, err := os.Open(s.path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	var data fileData
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		s.log.Warn("unparseable credential store", zap.Error(err))
		return "", nil, ErrCorrupted
	}

	if data.AuthToken == "" || data.UserData == "" {
		return "", nil, ErrCorrupted
	}

	var user model.User
	if err := json.Unmarshal([]byte(data.UserData), &user); err != nil {
		s.log.Warn("unparseable persisted user", zap.Error(err))
		return "", nil, ErrCorrupted
	}

	return data.AuthToken, &user, nil
}

func (s *jsonStore) Save(token string, user *model.User) error {
	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(&fileData{
		AuthToken: token,
		UserData:  string(userData),
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, b, 0o600)
}

func (s *jsonStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
