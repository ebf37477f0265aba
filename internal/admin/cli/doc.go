// Package cli implements confadmin, the operator command line for the
// conference organiser: schema migrations and account management without
// going through the web forms.
package cli
