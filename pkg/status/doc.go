/*
Package status records what happened to every file of a build.

	            +-------------+
	            |   Walker    |
	            |  (workers)  |
	            +------+------+
	                   | Result
	                   v
	            +-------------+
	            |   Report    |
	            | (collector) |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  Summary  |           |  Lines  |
	|  (table)  |           |(pkg/log)|
	+-----------+           +---------+

🎯 Purpose:
- One Result per visited file (and per directory that could not be read or created)
- A terminal Outcome for each (see Outcomes)
- Safe to record from many workers at once

🔄 Flow:
1. The walker finishes a file and builds a Result
2. Report.Record stores it and prints the console line
3. After the walk, Counts/Failures/SummaryRows feed the summary

🔍 Example:

	report := status.NewReport(source, logger)
	report.Record(ctx, status.Result{Source: src, Target: dst, Outcome: status.Optimized})

	fmt.Println(status.NewDefaultFileFormatter().FormatSummary(report.Counts()))
*/
package status
