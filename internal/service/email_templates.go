package service

import "fmt"

func fileNoticeTemplate(verb, actorName, fileName, spaceName, url, appName string) (string, string) {
	subject := fmt.Sprintf("[%s] %s %s %s", spaceName, actorName, verb, fileName)
	body := fmt.Sprintf(`Hi,

%s %s the file "%s" in %s.

Open it here:
%s

You receive this email because a member of %s chose to notify you.

Best,
The %s Team`, actorName, verb, fileName, spaceName, url, spaceName, appName)

	return subject, body
}
