package uow

const sqlTruncLen = 100

// TruncSQL truncates sql to sqlTruncLen characters for logs and error messages.
func TruncSQL(sql string) string {
	if len(sql) > sqlTruncLen {
		return sql[0:sqlTruncLen] + "..."
	}

	return sql
}
