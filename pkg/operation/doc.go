/*
Package operation wires configuration, the media service and the walker into
a single build.

	+-------------+
	|  Runner     |
	| (sync/async)|
	+------+------+
	       |
	+------+------+
	|   Build     |
	| (operation) |
	+------+------+
	       |
	+------+------+
	|   Walker    |
	|  (tree)     |
	+-------------+

🎯 Purpose:
- Resolves <root>/assets and <root>/dist/assets
- Prints the run header (roots, blur, workers)
- Runs the walker once over the whole tree
- Prints the outcome table and any failures

🔄 Flow:
1. NewBuildOperation checks the options
2. Runner.Run calls Execute, optionally in the background
3. Execute walks, then summarizes the report

🔍 Example:

	op, err := operation.NewBuildOperation(operation.Options{
		Config:  cfg,
		Service: media.NewComposite(media.Options{}),
		Root:    ".",
		Blur:    true,
		Video:   true,
	})
	if err != nil {
		return err
	}
	err = operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op)
*/
package operation
