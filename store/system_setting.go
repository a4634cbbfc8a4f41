package store

import "context"

// SystemSettingSchemaVersionName stores the applied schema version.
const SystemSettingSchemaVersionName = "SCHEMA_VERSION"

type SystemSetting struct {
	Name        string
	Value       string
	Description string
}

// GetSchemaVersion returns the schema version recorded in the database,
// or "" when none is recorded.
func (s *Store) GetSchemaVersion(ctx context.Context) (string, error) {
	setting, err := s.driver.GetSystemSetting(ctx, SystemSettingSchemaVersionName)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

func (s *Store) updateCurrentSchemaVersion(ctx context.Context, schemaVersion string) error {
	_, err := s.driver.UpsertSystemSetting(ctx, &SystemSetting{
		Name:        SystemSettingSchemaVersionName,
		Value:       schemaVersion,
		Description: "applied database schema version",
	})
	return err
}
