// Command recipegen-session hosts the token lifecycle synchronizer outside the browser. It keeps
// a cookie jar's credential in step with the configured identity provider and can probe the
// application with it.
package main

import "os"

func main() {
	os.Exit(execute()) //nolint:forbidigo // exit code reflects command result
}
