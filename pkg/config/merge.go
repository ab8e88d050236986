package config

// Merge copies the values source sets into target, recording sourceType
// for each. A value counts as set when its key is in source.SetFields; a
// config built without SetFields contributes its non-zero values.
func Merge(target, source *Config, sourceType string) {
	if source == nil {
		return
	}
	isSet := func(key string, nonZero bool) bool {
		if source.SetFields != nil {
			return source.SetFields[key]
		}
		return nonZero
	}
	apply := func(key string, nonZero bool, copyValue func()) {
		if isSet(key, nonZero) {
			copyValue()
			target.SetSource(key, sourceType)
		}
	}

	apply("path", source.Path != "", func() { target.Path = source.Path })
	apply("port", source.Port != 0, func() { target.Port = source.Port })
	apply("host", source.Host != "", func() { target.Host = source.Host })
	apply("prefix", len(source.Prefix) > 0, func() { target.Prefix = append(StringList(nil), source.Prefix...) })
	apply("requestTimeout", source.RequestTimeout != 0, func() { target.RequestTimeout = source.RequestTimeout })
	apply("cors", source.CORS, func() { target.CORS = source.CORS })
	apply("prioritizeBy", source.PrioritizeBy != "", func() { target.PrioritizeBy = source.PrioritizeBy })
	apply("staticPath", source.StaticPath != "", func() { target.StaticPath = source.StaticPath })
	apply("validateGenerated", source.ValidateGenerated, func() { target.ValidateGenerated = source.ValidateGenerated })
	apply("seed", source.Seed != 0, func() { target.Seed = source.Seed })
	apply("watch", source.Watch, func() { target.Watch = source.Watch })
	apply("watchInterval", source.WatchInterval != 0, func() { target.WatchInterval = source.WatchInterval })
	apply("debug", source.Debug, func() { target.Debug = source.Debug })
	apply("logLevel", source.LogLevel != "", func() { target.LogLevel = source.LogLevel })
	apply("logFormat", source.LogFormat != "", func() { target.LogFormat = source.LogFormat })
	apply("logFile", source.LogFile != "", func() { target.LogFile = source.LogFile })
}
