// Package pages renders the HTML views. Views are html/template files
// embedded at build time and exposed as templ components.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/validation"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"indent": func(level int) string {
		return strings.Repeat("    ", level)
	},
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"size": humanSize,
	"has": func(list []string, v string) bool {
		return slices.Contains(list, v)
	},
}

var views = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		"login", "spaces", "index", "folder", "file",
		"folder_form", "file_form", "confirm_delete", "search",
	} {
		views[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
}

func view(name string, data any) templ.Component {
	return templ.FromGoHTML(views[name].Lookup("layout"), data)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Layout carries what every page shows around its content
type Layout struct {
	Title     string
	AppName   string
	User      *model.User
	Space     *model.Space
	CSRFToken string
	Nonce     string
	Flash     string
}

// NewLayout reads the request scoped values off ctx
func NewLayout(ctx context.Context, title, flash string) Layout {
	l := Layout{
		Title:     title,
		AppName:   "Spaces",
		User:      ctxkeys.User(ctx),
		Space:     ctxkeys.Space(ctx),
		CSRFToken: ctxkeys.CSRFToken(ctx),
		Nonce:     templ.GetNonce(ctx),
		Flash:     flash,
	}
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
		l.AppName = cfg.AppName
	}
	return l
}

type LoginPage struct {
	Layout
	Email string
	Error string
}

func Login(p LoginPage) templ.Component {
	return view("login", p)
}

// SpaceEntry is one row of the spaces list. Plugins is only filled for
// spaces the user administers.
type SpaceEntry struct {
	Space   *model.Space
	Plugins []service.PluginState
}

type SpacesPage struct {
	Layout
	Spaces []SpaceEntry
}

func Spaces(p SpacesPage) templ.Component {
	return view("spaces", p)
}

// IndexPage lists the whole tree. Base is the files plugin prefix, e.g.
// /spaces/acme/files, and is shared by every files page below.
type IndexPage struct {
	Layout
	Base       string
	Folders    []*model.Folder
	Activities []*model.Activity
}

func Index(p IndexPage) templ.Component {
	return view("index", p)
}

// FolderPage shows one folder. Subtree includes the folder itself.
type FolderPage struct {
	Layout
	Base      string
	Folder    *model.Folder
	Ancestors []*model.Folder
	Children  []*model.Folder
	Siblings  []*model.Folder
	Subtree   []*model.Folder
	Files     []*model.File
	CanModify bool
}

func Folder(p FolderPage) templ.Component {
	return view("folder", p)
}

type FilePage struct {
	Layout
	Base      string
	File      *model.File
	Folder    *model.Folder
	URL       string
	CanModify bool
}

func File(p FilePage) templ.Component {
	return view("file", p)
}

type FolderFormPage struct {
	Layout
	Base    string
	Heading string
	Action  string
	Form    validation.FolderForm
	Errors  validation.Errors
	Parents []*model.Folder
}

func FolderForm(p FolderFormPage) templ.Component {
	return view("folder_form", p)
}

type FileFormPage struct {
	Layout
	Base    string
	Heading string
	Action  string
	Editing bool
	Form    validation.FileForm
	Errors  validation.Errors
	Parents []*model.Folder
	Members []*model.SpaceMember
	MaxSize int64
}

func FileForm(p FileFormPage) templ.Component {
	return view("file_form", p)
}

type ConfirmDeletePage struct {
	Layout
	Base        string
	Kind        string
	Name        string
	Action      string
	Cancel      string
	Descendants int
	Files       int
}

func ConfirmDelete(p ConfirmDeletePage) templ.Component {
	return view("confirm_delete", p)
}

type SearchPage struct {
	Layout
	Base  string
	Query string
	Files []*model.File
}

func Search(p SearchPage) templ.Component {
	return view("search", p)
}
