package templates

import "os"

const configTemplate = `
home_dir: ~/.strumscan
filesystem_type: local
public_dir: ""

db:
  driver: sqlite
  # dsn defaults to a scans.db under the data directory
  # dsn: file:/path/to/scans.db

model:
  path: instrument_classifier.onnx
  labels_path: labels.txt
  source: hf:strumscan/instrument-classifier-onnx
  input_size: 224
  normalization: scale

# s3:
#   endpoint_url: "https://nyc3.digitaloceanspaces.com"
#   access_key: ""
#   secret_key: ""
#   region_name: "nyc3"
#   bucket_name: ""
#   folder: "scans"
#   public_url: ""
`

const envTemplate = `# Environment overrides for strumscan; all keys use the STRUM_ prefix.
# STRUM_PORT=8880
# STRUM_DB_DSN=file:./scans.db
`

func GetConfigTemplate() string {
	return configTemplate
}

func WriteConfig(path string) error {
	return writeTemplate(path, configTemplate)
}

func WriteEnv(path string) error {
	return writeTemplate(path, envTemplate)
}

func writeTemplate(path string, contents string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(contents); err != nil {
		return err
	}

	return nil
}
