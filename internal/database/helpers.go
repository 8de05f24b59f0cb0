package database

import "database/sql"

// requireRows validates that an ExecContext result affected at least one
// row, returning notFoundErr otherwise.
func requireRows(result sql.Result, notFoundErr error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
