package cmd

import (
	"fmt"

	"github.com/snowwise/snowwise/internal/config/connection"
	"github.com/snowwise/snowwise/internal/shared/cmdutils"
)

type credentialField struct {
	label  string
	secret bool
	value  *string
}

func credentialFields(w *connection.ConnectionConfig) []credentialField {
	return []credentialField{
		{"Account", false, &w.Account},
		{"User", false, &w.User},
		{"Password", true, &w.Password},
		{"Warehouse", false, &w.Warehouse},
		{"Role", false, &w.Role},
	}
}

// promptCredentials asks for the Snowflake fields that are still empty.
// With again set every field is asked; an empty answer keeps the current
// value except for the password, which must be entered again.
// Non-snowflake drivers need no credentials.
func promptCredentials(w *connection.ConnectionConfig, ask cmdutils.Prompter, again bool) error {
	if w.Driver != "" && w.Driver != connection.DriverSnowflake {
		return nil
	}
	if again {
		w.Password = ""
	}
	for _, f := range credentialFields(w) {
		if *f.value != "" && !again {
			continue
		}
		label := f.label
		if *f.value != "" && !f.secret {
			label = fmt.Sprintf("%s [%s]", f.label, *f.value)
		}
		answer, err := ask(label, f.secret)
		if err != nil {
			return err
		}
		if answer != "" {
			*f.value = answer
		}
		if *f.value == "" {
			return fmt.Errorf("%s is required", f.label)
		}
	}
	return nil
}
