package transform

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds the engine configuration. The zero value is usable once
// defaults are applied by New.
type Config struct {
	HiddenLinkText         string   `json:"hiddenLinkText,omitempty" yaml:"hidden_link_text,omitempty"`
	DatabaseBaseURL        string   `json:"databaseBaseURL,omitempty" yaml:"database_base_url,omitempty"`
	ForeignDatabaseBaseURL string   `json:"foreignDatabaseBaseURL,omitempty" yaml:"foreign_database_base_url,omitempty"`
	QuestIconURL           string   `json:"questIconURL,omitempty" yaml:"quest_icon_url,omitempty"`
	ImageSizeClasses       []string `json:"imageSizeClasses,omitempty" yaml:"image_size_classes,omitempty"`
	GuideIconMarker        string   `json:"guideIconMarker,omitempty" yaml:"guide_icon_marker,omitempty"`
	// TravelCommand is a fmt format receiving x and y.
	TravelCommand string `json:"travelCommand,omitempty" yaml:"travel_command,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.HiddenLinkText == "" {
		c.HiddenLinkText = "hidden link"
	}
	if c.DatabaseBaseURL == "" {
		c.DatabaseBaseURL = "https://dofusdb.fr"
	}
	if c.ForeignDatabaseBaseURL == "" {
		c.ForeignDatabaseBaseURL = "https://db.methodwakfu.com"
	}
	if c.QuestIconURL == "" {
		c.QuestIconURL = "https://ganymede-app.com/images/icon_quest.png"
	}
	if len(c.ImageSizeClasses) == 0 {
		c.ImageSizeClasses = []string{"img-large", "img-medium", "img-small"}
	}
	if c.GuideIconMarker == "" {
		c.GuideIconMarker = "images/texteditor/guides.png"
	}
	if c.TravelCommand == "" {
		c.TravelCommand = "/travel %d,%d"
	}
	c.DatabaseBaseURL = strings.TrimRight(c.DatabaseBaseURL, "/")
	c.ForeignDatabaseBaseURL = strings.TrimRight(c.ForeignDatabaseBaseURL, "/")

	return c
}

// clone returns a copy of Config that shares no slices with the original.
func (c Config) clone() Config {
	cloned := c
	if c.ImageSizeClasses != nil {
		cloned.ImageSizeClasses = append([]string(nil), c.ImageSizeClasses...)
	}
	return cloned
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	for name, raw := range map[string]string{
		"databaseBaseURL":        c.DatabaseBaseURL,
		"foreignDatabaseBaseURL": c.ForeignDatabaseBaseURL,
		"questIconURL":           c.QuestIconURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", name, raw)
		}
	}
	for _, class := range c.ImageSizeClasses {
		if strings.TrimSpace(class) == "" || strings.ContainsAny(class, " \t\n") {
			return fmt.Errorf("invalid image size class %q", class)
		}
	}
	if strings.TrimSpace(c.HiddenLinkText) == "" {
		return fmt.Errorf("hiddenLinkText must be non-empty")
	}
	if strings.Count(c.TravelCommand, "%d") != 2 {
		return fmt.Errorf("invalid travelCommand %q: must contain exactly two %%d verbs", c.TravelCommand)
	}
	return nil
}
