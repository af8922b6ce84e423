// Package process turns local commands into named flow actions.
//
// Commands are allow-listed in a commands.yaml file:
//
//	commands:
//	  - name: lookup
//	    command: ./bin/lookup
//	    params: {email: string}
//	    result: account
//
// A flow calls them like any other action ({call: lookup}) and routes on
// the success or error event.
package process
