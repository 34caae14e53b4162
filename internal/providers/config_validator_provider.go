package providers

import (
	"errors"
	"fmt"

	"github.com/gookit/validate"

	"deckd/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid configuration: %s", v.Errors.One())
	}

	switch cv.conf.Storage.Driver {
	case "file":
		if cv.conf.Storage.Dir == "" {
			return errors.New("invalid configuration: storage.dir is required for the file driver")
		}
	case "http":
		if cv.conf.Storage.URL == "" {
			return errors.New("invalid configuration: storage.url is required for the http driver")
		}
	case "sqlite":
		if cv.conf.Storage.DSN == "" {
			return errors.New("invalid configuration: storage.dsn is required for the sqlite driver")
		}
	}
	return nil
}
