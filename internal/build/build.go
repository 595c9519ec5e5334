package build

import "strings"

var (
	Version = "dev"
	AppName = "foldwork"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
