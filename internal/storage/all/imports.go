// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. After that the following kinds
// are available to storage.New:
//
//   - "sqlite"   (covideda/internal/storage/sqlite)
//   - "postgres" (covideda/internal/storage/postgres)
//   - "mssql"    (covideda/internal/storage/mssql)
//   - "mysql"    (covideda/internal/storage/mysql)
package all

import (
	_ "covideda/internal/storage/mssql"
	_ "covideda/internal/storage/mysql"
	_ "covideda/internal/storage/postgres"
	_ "covideda/internal/storage/sqlite"
)
