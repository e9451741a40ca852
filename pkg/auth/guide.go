package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteTokenGuide prints how to obtain and store a bearer token for label
func WriteTokenGuide(w io.Writer, label string) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "BEARER TOKEN FOR %q\n", label)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Some hosts serve more results to signed-in sessions. wallcrawl sends the")
	fmt.Fprintln(w, "stored token as 'Authorization: Bearer <token>' and never refreshes it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Sign in to the site in your browser.")
	fmt.Fprintln(w, "2. Open Developer Tools (F12) and select the Network tab.")
	fmt.Fprintln(w, "3. Reload the page and pick any request to the site's API.")
	fmt.Fprintln(w, "4. Copy the value after 'Bearer ' in the Authorization request header.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Store it with:   wallcrawl token set %s\n", label)
	fmt.Fprintf(w, "Or export:       %s=<token>\n", EnvName(label))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tokens grant access to your account. Do not share them.")
	fmt.Fprintln(w, rule)
}
