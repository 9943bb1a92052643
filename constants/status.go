package constants

// FileStatus is the final outcome recorded for one input file.
type FileStatus string

const (
	StatusRenamed           FileStatus = "renamed"
	StatusSkippedNonReceipt FileStatus = "skipped_non_receipt"
	StatusSkippedError      FileStatus = "skipped_error"
	StatusReviewedAndEdited FileStatus = "reviewed_and_edited"
	StatusSkippedByUser     FileStatus = "skipped_by_user" // operator answered "no" at the prompt
)

// IsSkipped reports statuses where the file was left untouched without an error.
func (s FileStatus) IsSkipped() bool {
	return s == StatusSkippedNonReceipt || s == StatusSkippedByUser
}

// IsRenamed reports statuses where the file got (or in dry-run would get) a new name.
func (s FileStatus) IsRenamed() bool {
	return s == StatusRenamed || s == StatusReviewedAndEdited
}
