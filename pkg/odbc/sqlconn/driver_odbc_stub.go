//go:build !odbc

package sqlconn

// Без build-тега odbc драйвер "odbc" не зарегистрирован, и
// Open с Driver "odbc" завершается ошибкой неизвестного драйвера.
