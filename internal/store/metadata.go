package store

import (
	"github.com/pavelanni/historia/internal/model"
)

const (
	catalogNameKey        = "meta:catalog"
	catalogFingerprintKey = "meta:catalog_fingerprint"
)

// SetCatalogInfo records which catalog the saved game was played against.
func (s *Store) SetCatalogInfo(info model.CatalogInfo) error {
	pairs := []struct{ k, v string }{
		{catalogNameKey, info.Name},
		{catalogFingerprintKey, info.Fingerprint},
	}
	for _, p := range pairs {
		if err := s.Set(p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetCatalogInfo reads the recorded catalog. Missing fields are returned empty.
func (s *Store) GetCatalogInfo() (model.CatalogInfo, error) {
	var info model.CatalogInfo
	var err error

	if info.Name, _, err = s.Get(catalogNameKey); err != nil {
		return info, err
	}
	if info.Fingerprint, _, err = s.Get(catalogFingerprintKey); err != nil {
		return info, err
	}
	return info, nil
}
