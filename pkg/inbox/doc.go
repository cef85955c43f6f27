// Package inbox captures evidence dropped into a watched directory.
//
// Files copied into the inbox are enqueued once they have been quiet for
// the debounce interval, then moved to the processed directory under the
// name <item-id>-<original-name>. The MIME type is taken from the file
// extension when it is registered and sniffed from the content otherwise.
package inbox
