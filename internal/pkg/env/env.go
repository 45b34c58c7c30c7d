// Package env reads process configuration for the certify binaries.
package env

import (
	"os"
	"strconv"
	"strings"

	"certify/internal/pkg/errors"
)

// Get returns the trimmed value of k, or def when unset or blank.
func Get(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

// Require returns the value of k or a validation error naming it.
func Require(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", errors.ValidationField(k, "missing env: "+k).WithOp("env.require")
	}
	return v, nil
}

// Bool reads k as a bool. Empty or invalid values yield def.
// strconv.ParseBool accepts: 1,t,T,TRUE,true,True,0,f,F,FALSE,false,False.
func Bool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// List splits a comma separated value, dropping blanks.
func List(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
