/*
This is the command line front end for the clichat library.

clichat logs into one network device over telnet or ssh, runs a list of
commands and saves their output into a rotating capture repository.

Usage:

	clichat -host router1 -user lab -commands 'show version;show running-config'

Flags are:

	-changesOnly
	      do not save a capture identical to the previous one
	-commands string
	      commands to run, separated by ';'
	-config string
	      YAML configuration file (empty: built-in defaults)
	-debug
	      log every byte sent and received
	-diff
	      print differences from the previous capture
	-disableStdoutLog
	      disable logging to stdout
	-dumpConfig
	      print the effective configuration and exit
	-enablePass string
	      privilege escalation password (default $CLICHAT_ENABLE_PASS, then -pass)
	-errlogHistory int
	      result lines kept in the device errlog
	-host string
	      device host[:port]
	-id string
	      capture name (default: derived from host)
	-logFile string
	      log file path (empty: no log file)
	-logMaxFiles int
	      number of rotated log files to keep
	-logMaxSize int
	      log file size limit in megabytes
	-maxFiles int
	      captures to keep per device (0: unlimited)
	-pass string
	      login password (default $CLICHAT_PASS)
	-repository string
	      capture repository: directory or arn:aws:s3:region::bucket/folder
	-s3region string
	      AWS S3 region
	-timeout duration
	      per-prompt timeout (0: from config)
	-transport string
	      transport: telnet or ssh
	-user string
	      login username

Captures are saved as <repository>/<id>.N, with <id>.last pointing to the
latest one. Each run pushes a result line on top of <repository>/<id>.errlog.

If $CLICHAT_HOME is not defined, the repository defaults to /var/clichat/repo.

The exit status is 1 when login, any command or the save fails.
*/
package main
