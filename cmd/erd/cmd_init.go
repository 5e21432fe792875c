package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/erdlab/internal/alerr"
)

// DefaultScript is the model script created by `erd init`.
const DefaultScript = "model.js"

const starterScript = `// Model script: build the model with the erd globals, then run
//   erd run model.js
const student = addEntity({
  name: "Student",
  attributes: [
    { name: "id", type: "SERIAL", isPrimary: true },
    { name: "name", type: "VARCHAR(255)", isNullable: false },
  ],
});

const course = addEntity({
  name: "Course",
  attributes: [
    { name: "id", type: "SERIAL", isPrimary: true },
    { name: "title", type: "VARCHAR(255)", isNullable: false },
  ],
});

const enrolment = addRelationship({ source: student, target: course, cardinality: "1:n" });

// Changing to n:n offers a junction table (see --junctions).
setCardinality(enrolment, "n:n");

console.log("tables:", entities().length);
`

// initCmd creates erd.yaml and a starter model script.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create erd.yaml and a starter model.js",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfgData, err := initConfigData()
			if err != nil {
				return err
			}

			files := []struct {
				path string
				data []byte
			}{
				{configFile, cfgData},
				{DefaultScript, []byte(starterScript)},
			}
			for _, f := range files {
				created, err := createIfMissing(f.path, f.data)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(out, "Created %s\n", f.path)
				} else {
					fmt.Fprintf(out, "Skipped %s (already exists)\n", f.path)
				}
			}
			return nil
		},
	}
}

// initConfigData renders the default config as commented YAML.
func initConfigData() ([]byte, error) {
	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return nil, alerr.Wrap(alerr.EInternalError, err, "failed to encode default config")
	}
	header := []byte("# erd.yaml: precedence is flags > ERD_* env vars > this file > defaults\n")
	return append(header, data...), nil
}

// createIfMissing writes data to path unless the file already exists.
func createIfMissing(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, alerr.Wrap(alerr.ErrFileRead, err, "cannot stat file").WithFile(path, 0)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, alerr.Wrap(alerr.ErrFileWrite, err, "cannot create file").WithFile(path, 0)
	}
	return true, nil
}
