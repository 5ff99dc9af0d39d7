package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

// Removes cached report responses from a postgres-backed store. Session keys
// are left alone.
func main() {
	connStr := flag.String("db", os.Getenv("VETCLINIC_DATABASE_URL"), "postgres connection string")
	namespace := flag.String("namespace", "vetclinic", "store namespace")
	flag.Parse()

	if *connStr == "" {
		fmt.Fprintln(os.Stderr, "missing -db or VETCLINIC_DATABASE_URL")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", *connStr)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	res, err := db.Exec(`DELETE FROM kv_entries WHERE namespace = $1 AND key LIKE 'fallback:%'`, *namespace)
	if err != nil {
		panic(err)
	}
	n, _ := res.RowsAffected()

	fmt.Printf("Removed %d fallback entries from namespace %q\n", n, *namespace)
}
