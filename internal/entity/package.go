package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PackageKind discriminates the option set a package carries.
type PackageKind string

const (
	KindCamera PackageKind = "camera"
	KindAlarm  PackageKind = "alarm"
	KindAccess PackageKind = "access"
)

// PackageProductPrefix prefixes the product id of a package line item.
const PackageProductPrefix = "package:"

// KindForSlug resolves the option variant from a package slug.
// Catalog slugs are prefixed with their kind, e.g. "camera-pro-4", "alarm-basic".
func KindForSlug(slug string) PackageKind {
	for _, k := range []PackageKind{KindCamera, KindAlarm, KindAccess} {
		if slug == string(k) || strings.HasPrefix(slug, string(k)+"-") {
			return k
		}
	}
	return ""
}

// Limits caps how many items of a constrained category may be added while
// the package is active. A nil field means "no limit".
type Limits struct {
	Cameras *int `json:"cameras,omitempty"`
	Users   *int `json:"users,omitempty"`
}

func (l Limits) For(c Category) (int, bool) {
	switch c {
	case CategoryCamera:
		if l.Cameras != nil {
			return *l.Cameras, true
		}
	case CategoryUser:
		if l.Users != nil {
			return *l.Users, true
		}
	}
	return 0, false
}

// Package is a flat-priced bundle, optionally constraining add-ons.
type Package struct {
	ID       string      `json:"id"`
	Slug     string      `json:"slug"`
	Name     string      `json:"name"`
	PriceILS int64       `json:"priceIls"`
	Kind     PackageKind `json:"kind,omitempty"`
	Limits   Limits      `json:"limits"`
}

func (p Package) ProductID() string {
	return PackageProductPrefix + p.Slug
}

// LineItem represents the package as a single cart line.
func (p Package) LineItem(opts PackageOptions) LineItem {
	return LineItem{
		ProductID:      p.ProductID(),
		Name:           p.Name,
		UnitPrice:      p.PriceILS,
		Quantity:       1,
		Category:       CategoryPackage,
		PackageSlug:    p.Slug,
		PackageOptions: opts,
	}
}

// PackageOptions is the closed set of per-kind configurator choices.
// Only the variants in this file implement it.
type PackageOptions interface {
	Kind() PackageKind
	Fields() map[string]string
	isPackageOptions()
}

type CameraPackageOptions struct {
	CameraCount int
	Storage     string
	AIDetection string
}

func (CameraPackageOptions) Kind() PackageKind { return KindCamera }
func (CameraPackageOptions) isPackageOptions() {}

func (o CameraPackageOptions) Fields() map[string]string {
	m := map[string]string{}
	if o.CameraCount > 0 {
		m["cameraCount"] = strconv.Itoa(o.CameraCount)
	}
	putIf(m, "storage", o.Storage)
	putIf(m, "aiDetection", o.AIDetection)
	return m
}

type AlarmPackageOptions struct {
	Sensors    int
	Monitoring string
}

func (AlarmPackageOptions) Kind() PackageKind { return KindAlarm }
func (AlarmPackageOptions) isPackageOptions() {}

func (o AlarmPackageOptions) Fields() map[string]string {
	m := map[string]string{}
	if o.Sensors > 0 {
		m["sensors"] = strconv.Itoa(o.Sensors)
	}
	putIf(m, "monitoring", o.Monitoring)
	return m
}

type AccessPackageOptions struct {
	Doors int
	Users int
}

func (AccessPackageOptions) Kind() PackageKind { return KindAccess }
func (AccessPackageOptions) isPackageOptions() {}

func (o AccessPackageOptions) Fields() map[string]string {
	m := map[string]string{}
	if o.Doors > 0 {
		m["doors"] = strconv.Itoa(o.Doors)
	}
	if o.Users > 0 {
		m["users"] = strconv.Itoa(o.Users)
	}
	return m
}

// ParsePackageOptions builds the variant for kind from the flat wire map.
// Unknown keys are rejected so typos surface instead of being dropped.
func ParsePackageOptions(kind PackageKind, fields map[string]string) (PackageOptions, error) {
	p := optionParser{fields: fields}
	var opts PackageOptions
	switch kind {
	case KindCamera:
		opts = CameraPackageOptions{
			CameraCount: p.num("cameraCount"),
			Storage:     p.str("storage"),
			AIDetection: p.str("aiDetection"),
		}
	case KindAlarm:
		opts = AlarmPackageOptions{
			Sensors:    p.num("sensors"),
			Monitoring: p.str("monitoring"),
		}
	case KindAccess:
		opts = AccessPackageOptions{
			Doors: p.num("doors"),
			Users: p.num("users"),
		}
	default:
		return nil, fmt.Errorf("package options given for unknown package kind %q", kind)
	}
	if p.err != nil {
		return nil, p.err
	}
	if extra := p.unused(); len(extra) > 0 {
		return nil, fmt.Errorf("unsupported %s package options: %s", kind, strings.Join(extra, ", "))
	}
	return opts, nil
}

type optionParser struct {
	fields map[string]string
	seen   map[string]bool
	err    error
}

func (p *optionParser) str(key string) string {
	if p.seen == nil {
		p.seen = map[string]bool{}
	}
	p.seen[key] = true
	return strings.TrimSpace(p.fields[key])
}

func (p *optionParser) num(key string) int {
	v := p.str(key)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.err = fmt.Errorf("package option %s must be a non-negative integer, got %q", key, v)
		return 0
	}
	return n
}

func (p *optionParser) unused() []string {
	var out []string
	for k := range p.fields {
		if !p.seen[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func putIf(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}
