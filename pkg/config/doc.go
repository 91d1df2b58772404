/*
Package config loads the policy configuration for an assetrc run.

	            +-------------+
	            |   Config    |
	            |  (Policy)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Reads one config file, picked by extension
- Overlays it on Default so absent keys keep sane values
- Validates ranges and normalizes extension lists

🔄 Flow:
1. Load reads the file and asks the registry for a Parser
2. The parser decodes into a pointer-based document (absent vs zero)
3. The document resolves onto Default
4. Validate checks ranges, lowercases and dot-prefixes extensions

📝 Keys:

	folders.{include,exclude}
	files.{include,exclude}
	extensions.{processable,videoProcessable,copyOnly,exclude}
	image.{enableResize,maxWidth,quality.{jpeg,png,webp}}
	video.{enableProcessing,enableResize,preserveFormat,maxWidth,maxHeight,
	       quality.{crf,preset,bitrate},formats.{outputFormat,codec}}
	blur.{strength,folders.{include,exclude},files.{include,exclude}}

Any failure is reported as a *LoadError, the only error that aborts a run.

🔍 Example:

	cfg, err := config.Load(ctx, ".assetrc.yaml")
	if err != nil {
		var lerr *config.LoadError
		if errors.As(err, &lerr) {
			os.Exit(1)
		}
	}
*/
package config
