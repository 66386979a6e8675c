package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/curelo/landingcms/internal/app/system/authutil"
	"github.com/curelo/landingcms/internal/cms/editor"
	"github.com/curelo/landingcms/internal/cms/localcache"
	"github.com/curelo/landingcms/internal/cms/registry"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) pullCmd() *cobra.Command {
	var format, page, output string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Print the current site document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			var v any = store.Document()
			if page != "" {
				p, ok := store.Page(page)
				if !ok {
					return fmt.Errorf("%w: %s", registry.ErrPageNotFound, page)
				}
				v = p
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return encode(w, v, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&page, "page", "p", "", "Only print this page")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func (c *cli) pagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List and manage pages",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pages, home first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tTITLE\tTEMPLATE")
			for _, p := range registry.New(store).List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Slug, p.Title, p.Template)
			}
			return tw.Flush()
		},
	}

	var title, template string
	create := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a page with default content and publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := registry.New(store).Create(args[0], title, template); err != nil {
				return err
			}
			return c.publish(cmd.Context(), cmd, store)
		},
	}
	create.Flags().StringVarP(&title, "title", "t", "", "Page title (required)")
	create.Flags().StringVar(&template, "template", string(models.TemplateDefault), "Page template: default or minimal")

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a page and publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := registry.New(store).Delete(args[0]); err != nil {
				return err
			}
			return c.publish(cmd.Context(), cmd, store)
		},
	}

	setTemplate := &cobra.Command{
		Use:   "template <slug> <template>",
		Short: "Change the template of a page and publish",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := registry.New(store).SetTemplate(args[0], args[1]); err != nil {
				return err
			}
			return c.publish(cmd.Context(), cmd, store)
		},
	}

	cmd.AddCommand(list, create, del, setTemplate)
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var sets, lists, itemSets, removes []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "edit <slug> <tab>",
		Short: "Edit one section of a page and publish",
		Long: `Edit one section (tab) of a page. Tabs are the section keys:
hero, testDetails, mostBookedPackages (or packages), whyChooseUs, faqs,
and contact.

  cmsctl edit home hero --set offerTitle="Full Body Checkup"
  cmsctl edit home faqs --set-item items.0.answer="Within 24 hours"
  cmsctl edit home packages --remove-item packages.2
  cmsctl edit home hero --set-list usps='[{"title":"NABL labs"}]'

Values keep the type of the field they replace, so
--set-item packages.0.recommended=true stores a boolean. Comma separated
values fill string lists such as extraTags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			sess := editor.NewSession(store)
			if err := sess.Open(args[0]); err != nil {
				return err
			}
			if err := sess.SelectTab(args[1]); err != nil {
				return err
			}
			if err := applyEdits(sess, sets, lists, itemSets, removes); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sess.State() == editor.Clean {
				fmt.Fprintln(out, "no changes")
				return nil
			}
			if dryRun {
				return encode(out, sess.Draft(), "json")
			}
			sess.Save()
			return c.publish(cmd.Context(), cmd, store)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a field: key=value (repeatable)")
	cmd.Flags().StringArrayVar(&lists, "set-list", nil, "Replace a whole list: list=<JSON or YAML array> (repeatable)")
	cmd.Flags().StringArrayVar(&itemSets, "set-item", nil, "Set a list item field: list.index.field=value (repeatable)")
	cmd.Flags().StringArrayVar(&removes, "remove-item", nil, "Remove a list item: list.index (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the edited section instead of publishing")
	return cmd
}

// applyEdits runs the edits against the draft: fields, whole lists, list
// item fields, then removals. Removals run from the highest index down so
// earlier removals do not shift later ones.
func applyEdits(sess *editor.Session, sets, lists, itemSets, removes []string) error {
	for _, s := range sets {
		key, raw, err := splitAssignment(s)
		if err != nil {
			return err
		}
		sess.SetField(key, editor.CoerceValue(sess.Draft()[key], raw))
	}

	for _, s := range lists {
		key, raw, err := splitAssignment(s)
		if err != nil {
			return err
		}
		var items []any
		if err := yaml.Unmarshal([]byte(raw), &items); err != nil {
			return fmt.Errorf("--set-list %s: expected a JSON or YAML array: %w", key, err)
		}
		if items == nil {
			items = []any{}
		}
		sess.ReplaceList(key, items)
	}

	for _, s := range itemSets {
		path, raw, err := splitAssignment(s)
		if err != nil {
			return err
		}
		list, index, field, err := parseItemPath(path, true)
		if err != nil {
			return err
		}
		current := listItemField(sess.Draft(), list, index, field)
		if err := sess.SetListItemField(list, index, field, editor.CoerceValue(current, raw)); err != nil {
			return err
		}
	}

	type removal struct {
		list  string
		index int
	}
	var rs []removal
	for _, s := range removes {
		list, index, _, err := parseItemPath(s, false)
		if err != nil {
			return err
		}
		rs = append(rs, removal{list, index})
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].index > rs[j].index })
	for _, r := range rs {
		if err := sess.RemoveListItem(r.list, r.index); err != nil {
			return err
		}
	}
	return nil
}

func splitAssignment(s string) (key, value string, err error) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return s[:i], s[i+1:], nil
}

// parseItemPath parses "list.index.field", or "list.index" when withField
// is false.
func parseItemPath(path string, withField bool) (list string, index int, field string, err error) {
	want := 2
	if withField {
		want = 3
	}
	parts := strings.SplitN(path, ".", want)
	if len(parts) != want || parts[0] == "" {
		if withField {
			return "", 0, "", fmt.Errorf("expected list.index.field, got %q", path)
		}
		return "", 0, "", fmt.Errorf("expected list.index, got %q", path)
	}
	index, err = strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return "", 0, "", fmt.Errorf("invalid list index in %q", path)
	}
	if withField {
		if parts[2] == "" {
			return "", 0, "", fmt.Errorf("missing field name in %q", path)
		}
		field = parts[2]
	}
	return parts[0], index, field, nil
}

func listItemField(draft map[string]any, list string, index int, field string) any {
	items, ok := draft[list].([]any)
	if !ok || index < 0 || index >= len(items) {
		return nil
	}
	item, ok := items[index].(map[string]any)
	if !ok {
		return nil
	}
	return item[field]
}

func (c *cli) publishCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the current document, or a document file",
		Long: `Without --file, publish re-publishes the server's current document.
That reconciles it against the current section defaults and compresses any
oversized embedded images. With --file, the JSON or YAML document in the
file replaces the server's document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, done, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if file != "" {
				doc, err := readDocumentFile(file)
				if err != nil {
					return err
				}
				store.Replace(doc)
			}
			return c.publish(cmd.Context(), cmd, store)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON or YAML document to publish")
	return cmd
}

// readDocumentFile decodes a site document from JSON, or from YAML when
// the file ends in .yaml or .yml. YAML goes through JSON so that numbers
// and maps come out the same as from the server.
func readDocumentFile(path string) (*models.SiteDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var tree any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if raw, err = json.Marshal(tree); err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
	}
	var doc models.SiteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%s has no pages", path)
	}
	return &doc, nil
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage entries of the server's users file",
	}

	var username, role string
	var allowWeak bool
	hash := &cobra.Command{
		Use:   "hash",
		Short: "Read a password from stdin and print a users file entry",
		Long: `Reads one line from stdin and prints a bcrypt hash of it. With
--username, prints a complete users file entry instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			password := strings.TrimRight(line, "\r\n")
			if !allowWeak {
				if err := authutil.ValidatePassword(password); err != nil {
					return err
				}
			}
			hashed, err := authutil.HashPassword(password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if username == "" {
				fmt.Fprintln(out, hashed)
				return nil
			}
			entry := map[string]string{"username": username, "password": hashed, "role": role}
			return encode(out, entry, "json")
		},
	}
	hash.Flags().StringVar(&username, "username", "", "Print a full entry for this username")
	hash.Flags().StringVar(&role, "role", "admin", "Role for the entry")
	hash.Flags().BoolVar(&allowWeak, "allow-weak", false, "Skip password strength checks")

	cmd.AddCommand(hash)
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local document cache",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached document",
		Long: `Removes the locally cached site document. The next command that loads
content starts from the server's copy only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := localcache.Open(localcache.Options{Directory: c.cfg.CacheDir})
			if err != nil {
				return err
			}
			clearErr := cache.Clear()
			if err := cache.Close(); err != nil && clearErr == nil {
				clearErr = err
			}
			if clearErr != nil {
				return fmt.Errorf("clear local cache: %w", clearErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
	cmd.AddCommand(clearCmd)
	return cmd
}
