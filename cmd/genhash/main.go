// Command genhash prints the SHA-256 digest of an admin password together
// with the credential record to store at the "admin" path of the remote
// database.
//
//	genhash -u admin            # prompts for the password
//	genhash -u admin -p secret
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/cryptox"
	"golang.org/x/term"
)

var readPassword = term.ReadPassword

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("genhash", flag.ContinueOnError)
	username := fs.String("u", "admin", "admin username")
	password := fs.String("p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		fmt.Fprint(w, "Enter password: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*password = string(pw)
	}
	if *password == "" {
		return fmt.Errorf("password must not be empty")
	}

	digest := cryptox.HashPassword(*password)
	record, err := json.MarshalIndent(map[string]models.Credential{
		"admin": {Username: *username, Password: digest},
	}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Password hash: %s\n\n", digest)
	fmt.Fprintln(w, "Add this to the database root:")
	fmt.Fprintln(w, string(record))
	return nil
}
