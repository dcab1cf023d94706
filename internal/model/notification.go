package model

const (
	NoticeFileCreate = "spaces_files_file_create"
	NoticeFileModify = "spaces_files_file_modify"
)

type NotificationType struct {
	Label       string `db:"label"`
	Display     string `db:"display"`
	Description string `db:"description"`
}
