package models

// ImportResult summarizes one bulk outlet import
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// S3ImportRequest points the importer at an object in the import bucket
type S3ImportRequest struct {
	Key string `json:"key" validate:"required,max=1024"`
}
